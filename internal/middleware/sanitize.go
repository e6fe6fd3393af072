package middleware

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSearchLength limita o termo de busca aceito
const MaxSearchLength = 200

// SanitizeSearch remove bytes nulos e corta o termo em MaxSearchLength runas.
// Espaços são mantidos: fazem parte da substring buscada.
func SanitizeSearch(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}

	if utf8.RuneCountInString(input) > MaxSearchLength {
		runes := []rune(input)
		input = string(runes[:MaxSearchLength])
	}
	return input
}

// SanitizeFilename limpa um nome de arquivo usado em Content-Disposition
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	filename = strings.ReplaceAll(filename, "\x00", "")
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")
	filename = strings.ReplaceAll(filename, `"`, "")

	filename = removeControlChars(filename)
	filename = strings.TrimSpace(filename)

	if filename == "" || filename == "." {
		return "unnamed_file"
	}
	return filename
}

// removeControlChars remove caracteres de controle
func removeControlChars(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
