package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// LoadBlackList reads rejected passwords from a file, one per line.
func LoadBlackList(filePath string) (map[string]bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blackList := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			blackList[strings.ToLower(line)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blackList, nil
}

// CheckPasswordStrength returns a user facing reason when password is
// rejected, or "" when it is acceptable.
func CheckPasswordStrength(password string, blackList map[string]bool) string {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	case blackList[strings.ToLower(password)]:
		return "This password is too common."
	case strings.Trim(password, "0123456789") == "":
		return "This password is entirely numeric."
	}
	return ""
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
