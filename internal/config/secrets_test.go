package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSecretEmpty(t *testing.T) {
	result := ValidateSecret("", "test_secret", 12, true)
	assert.False(t, result.IsValid)
	assert.Equal(t, SecretStrengthWeak, result.Strength)
	assert.Contains(t, result.Errors[0], "cannot be empty")
}

func TestValidateSecretPlaceholders(t *testing.T) {
	placeholders := []string{"changeme", "CHANGEME", "please_change_me", "test123", "password", "admin123"}

	for _, placeholder := range placeholders {
		t.Run(placeholder, func(t *testing.T) {
			result := ValidateSecret(placeholder, "test_secret", 12, true)
			assert.False(t, result.IsValid)
			assert.Equal(t, SecretStrengthWeak, result.Strength)
			assert.NotEmpty(t, result.Errors)
		})
	}
}

func TestValidateSecretCommonWeakPasswords(t *testing.T) {
	weak := []string{"123456", "12345678", "qwerty", "letmein"}

	for _, p := range weak {
		t.Run(p, func(t *testing.T) {
			result := ValidateSecret(p, "test_secret", 12, true)
			assert.False(t, result.IsValid)
			assert.Equal(t, SecretStrengthWeak, result.Strength)
		})
	}
}

func TestValidateSecretTooShort(t *testing.T) {
	result := ValidateSecret("short", "test_secret", 12, true)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "at least 12 characters")
}

func TestValidateSecretMediumStrength(t *testing.T) {
	result := ValidateSecret("h7j2p9k4m6q8", "test_secret", 12, false)
	assert.True(t, result.IsValid)
	assert.Equal(t, SecretStrengthMedium, result.Strength)
}

func TestValidateSecretStrongPassword(t *testing.T) {
	strong := []string{
		"MyP@ssw0rd12345!",
		"Tr0ng_P@ssw0rd_2024",
		"Secure!Database#Pass99",
	}

	for _, s := range strong {
		t.Run(s, func(t *testing.T) {
			result := ValidateSecret(s, "test_secret", 12, true)
			assert.True(t, result.IsValid, "password should be valid: %v", result.Errors)
			assert.Equal(t, SecretStrengthStrong, result.Strength)
		})
	}
}

func TestValidateSecretSequentialChars(t *testing.T) {
	result := ValidateSecret("MyPass123word", "test_secret", 12, false)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "sequential")
}

func TestValidateSecretRepeatedChars(t *testing.T) {
	result := ValidateSecret("MyPaaassword", "test_secret", 12, false)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "repeated")
}

func TestValidateSecretNotRequireStrong(t *testing.T) {
	result := ValidateSecret("simplepass", "test_secret", 8, false)
	assert.True(t, result.IsValid)
	assert.Equal(t, SecretStrengthWeak, result.Strength)
}

func TestValidateProductionSecrets(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		expectError bool
		errorField  string
	}{
		{
			name: "valid production secrets",
			cfg: &Config{
				App:      AppConfig{Environment: "production"},
				Database: DatabaseConfig{Password: "MyStr0ng_P@ssw0rd!"},
				Redis:    RedisConfig{Password: "RedisStr0ng_P@ss!"},
			},
			expectError: false,
		},
		{
			name: "weak database password",
			cfg: &Config{
				App:      AppConfig{Environment: "production"},
				Database: DatabaseConfig{Password: "weak"},
			},
			expectError: true,
			errorField:  "database.password",
		},
		{
			name: "placeholder database password",
			cfg: &Config{
				App:      AppConfig{Environment: "production"},
				Database: DatabaseConfig{Password: "changeme"},
			},
			expectError: true,
			errorField:  "database.password",
		},
		{
			name: "weak redis password",
			cfg: &Config{
				App:      AppConfig{Environment: "production"},
				Database: DatabaseConfig{Password: "MyStr0ng_P@ssw0rd!"},
				Redis:    RedisConfig{Password: "123456"},
			},
			expectError: true,
			errorField:  "redis.password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateProductionSecrets(tt.cfg)
			if tt.expectError {
				assert.NotEmpty(t, errors)
				found := false
				for _, err := range errors {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				assert.True(t, found, "expected error for field %s", tt.errorField)
			} else {
				assert.Empty(t, errors)
			}
		})
	}
}

func TestHasSequentialChars(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"abc123", true},
		{"123abc", true},
		{"def456", true},
		{"AbC123", true},
		{"a1b2c3", false},
		{"random", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasSequentialChars(tt.input))
		})
	}
}

func TestHasRepeatedChars(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected bool
	}{
		{"aaa", 3, true},
		{"aaab", 3, true},
		{"baaa", 3, true},
		{"aabb", 3, false},
		{"abcabc", 3, false},
		{"1122", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasRepeatedChars(tt.input, tt.n))
		})
	}
}

func TestGetSecretStrengthDescription(t *testing.T) {
	assert.Equal(t, "Weak", GetSecretStrengthDescription(SecretStrengthWeak))
	assert.Equal(t, "Medium", GetSecretStrengthDescription(SecretStrengthMedium))
	assert.Equal(t, "Strong", GetSecretStrengthDescription(SecretStrengthStrong))
}
