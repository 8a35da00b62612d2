package security

import (
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		wantErr bool
	}{
		{"valid simple name", "w3m", false},
		{"valid with dashes", "w3m-img", false},
		{"valid with underscores", "my_app_name", false},
		{"valid with dots", "python3.12", false},
		{"valid with plus", "g++", false},
		{"valid multiarch", "libc6:i386", false},
		{"empty name", "", true},
		{"name with spaces", "app name", true},
		{"leading dash", "-rf", true},
		{"name with path traversal", "../../../etc/passwd", true},
		{"name with absolute path", "/usr/bin/app", true},
		{"name with tilde", "~/.ssh/id_rsa", true},
		{"name with separator", "w3m;1.0;amd64;", true},
		{"null byte injection", "app\x00bad", true},
		{"very long name", strings.Repeat("a", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.pkgName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.pkgName, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{"debian revision", "0.5.3-34", false},
		{"epoch and tilde", "1:2.3~rc1-4", false},
		{"fedora release", "9.1.0-1.fc40", false},
		{"empty", "", true},
		{"too long", strings.Repeat("1", 120), true},
		{"slash", "1.0/2", true},
		{"semicolon", "1.0;rm", true},
		{"space", "1.0 beta", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePackageID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"installed", "w3m;0.5.3-34;amd64;installed", false},
		{"repository", "vim;9.1.0-1.fc40;x86_64;fedora", false},
		{"installed with origin", "w3m;0.5.3-34;amd64;installed:debian-stable", false},
		{"empty data", "w3m;0.5.3-34;amd64;", false},
		{"no version", "w3m;;amd64;debian", false},
		{"too few segments", "w3m;0.5.3-34;amd64", true},
		{"empty name", ";1.0;amd64;debian", true},
		{"bad name", "w 3m;1.0;amd64;debian", true},
		{"bad version", "w3m;1 0;amd64;debian", true},
		{"bad arch", "w3m;1.0;amd 64;debian", true},
		{"bad data", "w3m;1.0;amd64;$(reboot)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
