package config

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// LoadDotEnv applies KEY=VALUE pairs from the given files to the process
// environment, so local runs can keep DATABASE_URL, ENGINE_BASE_URL and
// the rest of the settings Load reads out of a checked-in file. Variables
// already present in the environment win, and missing files are skipped
// so deploys need no .env at all.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		err := applyEnvFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applyEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := splitEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}
	return scanner.Err()
}

// splitEnvLine parses one .env line, tolerating blank lines, comments,
// an optional export prefix, and single or double quoted values.
func splitEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if rest, found := strings.CutPrefix(line, "export "); found {
		line = strings.TrimSpace(rest)
	}

	key, raw, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, unquoteEnvValue(raw), true
}

func unquoteEnvValue(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) >= 2 {
		last := value[len(value)-1]
		switch {
		case value[0] == '"' && last == '"':
			return strings.NewReplacer(
				`\\`, `\`,
				`\n`, "\n",
				`\r`, "\r",
				`\t`, "\t",
				`\"`, `"`,
			).Replace(value[1 : len(value)-1])
		case value[0] == '\'' && last == '\'':
			return value[1 : len(value)-1]
		}
	}

	// Unquoted values may carry a trailing inline comment.
	if index := strings.Index(value, " #"); index >= 0 {
		value = strings.TrimSpace(value[:index])
	}
	return value
}
