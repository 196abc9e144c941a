package domain

import (
	"fmt"
	"time"

	"gitlab.com/bluapt.net/internal/static/errs"
)

// Language is the closed set of languages the sandbox can run.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
)

// LanguageProfile describes how code in one language is materialized and
// run inside a sandbox container. RunCommand is a shell command executed
// with the workspace mounted read-only at /code.
type LanguageProfile struct {
	Image            string
	SourceExtension  string
	RunCommand       string
	DefaultTimeout   time.Duration
	MemoryLimitBytes int64
}

// ParseLanguage maps a caller-supplied identifier to a Language.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguagePython, LanguageJavaScript, LanguageJava, LanguageCPP:
		return Language(s), nil
	default:
		return "", fmt.Errorf("%w: %q", errs.UnsupportedLanguage, s)
	}
}

// ProfileFor returns the execution profile for a language. The switch is
// exhaustive over the Language constants; adding a language without a
// profile is caught here rather than at container start.
func ProfileFor(lang Language) (LanguageProfile, error) {
	switch lang {
	case LanguagePython:
		return LanguageProfile{
			Image:            "python:3.9-slim",
			SourceExtension:  "py",
			RunCommand:       "python /code/program.py",
			DefaultTimeout:   10 * time.Second,
			MemoryLimitBytes: 128 * 1024 * 1024,
		}, nil
	case LanguageJavaScript:
		return LanguageProfile{
			Image:            "node:14-alpine",
			SourceExtension:  "js",
			RunCommand:       "node /code/program.js",
			DefaultTimeout:   10 * time.Second,
			MemoryLimitBytes: 128 * 1024 * 1024,
		}, nil
	case LanguageJava:
		return LanguageProfile{
			Image:            "openjdk:11-jre-slim",
			SourceExtension:  "java",
			RunCommand:       "java /code/program.java",
			DefaultTimeout:   15 * time.Second,
			MemoryLimitBytes: 256 * 1024 * 1024,
		}, nil
	case LanguageCPP:
		return LanguageProfile{
			Image:            "gcc:latest",
			SourceExtension:  "cpp",
			RunCommand:       "g++ -o /tmp/program /code/program.cpp && /tmp/program",
			DefaultTimeout:   10 * time.Second,
			MemoryLimitBytes: 128 * 1024 * 1024,
		}, nil
	default:
		return LanguageProfile{}, fmt.Errorf("%w: %q", errs.UnsupportedLanguage, lang)
	}
}

// SupportedLanguages lists every language with a profile, for image
// pre-pulling and API discovery.
func SupportedLanguages() []Language {
	return []Language{LanguagePython, LanguageJavaScript, LanguageJava, LanguageCPP}
}
