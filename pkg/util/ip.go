package util

import "fmt"

// ValidateASN checks if an AS number is valid
func ValidateASN(asn int) error {
	if asn < 1 || asn > 4294967295 {
		return fmt.Errorf("AS number must be between 1 and 4294967295, got %d", asn)
	}
	return nil
}
