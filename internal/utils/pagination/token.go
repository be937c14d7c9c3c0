package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeRegistryCursor creates a token pointing after the given registry number of a chain scope.
func EncodeRegistryCursor(scope string, registryNumber int64) string {
	return EncodeMultiFieldToken(scope, strconv.FormatInt(registryNumber, 10))
}

// DecodeRegistryCursor parses a token created by EncodeRegistryCursor. The
// scope must match the one being listed.
func DecodeRegistryCursor(token, scope string) (int64, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	if parts[0] != scope {
		return 0, fmt.Errorf("pagination token belongs to another chain scope")
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid pagination token format (registry number): %v", err)
	}
	return n, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}
