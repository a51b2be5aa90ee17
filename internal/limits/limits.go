// Package limits holds the resource ceilings consumed by every later stage
// (spec §4.1). The shape mirrors the teacher's configuration-as-plain-data
// style (termfx-morfx/internal/config): load, apply defaults, validate once
// before anything downstream allocates.
package limits

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits is a plain record of ceilings. All fields are optional on disk;
// zero values are replaced by Defaults() before Validate runs.
type Limits struct {
	MaxInputBytes         int `yaml:"max_input_bytes"`
	MaxTokens             int `yaml:"max_tokens"`
	MaxExpressionDepth    int `yaml:"max_expression_depth"`
	MaxASTNodes           int `yaml:"max_ast_nodes"`
	MaxStringLiteralBytes int `yaml:"max_string_literal_bytes"`
	MaxIdentifierBytes    int `yaml:"max_identifier_bytes"`
	MaxCommentBytes       int `yaml:"max_comment_bytes"`
}

// Defaults returns the ceilings spec §4.1 names.
func Defaults() Limits {
	return Limits{
		MaxInputBytes:         10 * 1024 * 1024,
		MaxTokens:             100_000,
		MaxExpressionDepth:    256,
		MaxASTNodes:           1_000_000,
		MaxStringLiteralBytes: 1024 * 1024,
		MaxIdentifierBytes:    256,
		MaxCommentBytes:       10 * 1024,
	}
}

// applyDefaults fills any zero field from Defaults(), so a config file may
// specify only the keys it wants to override.
func (l Limits) applyDefaults() Limits {
	d := Defaults()
	if l.MaxInputBytes == 0 {
		l.MaxInputBytes = d.MaxInputBytes
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = d.MaxTokens
	}
	if l.MaxExpressionDepth == 0 {
		l.MaxExpressionDepth = d.MaxExpressionDepth
	}
	if l.MaxASTNodes == 0 {
		l.MaxASTNodes = d.MaxASTNodes
	}
	if l.MaxStringLiteralBytes == 0 {
		l.MaxStringLiteralBytes = d.MaxStringLiteralBytes
	}
	if l.MaxIdentifierBytes == 0 {
		l.MaxIdentifierBytes = d.MaxIdentifierBytes
	}
	if l.MaxCommentBytes == 0 {
		l.MaxCommentBytes = d.MaxCommentBytes
	}
	return l
}

// Validate enforces spec §4.1: every value > 0, depth >= 8, identifier <= string.
func (l Limits) Validate() error {
	if l.MaxInputBytes <= 0 {
		return fmt.Errorf("max_input_bytes must be > 0")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0")
	}
	if l.MaxExpressionDepth < 8 {
		return fmt.Errorf("max_expression_depth must be >= 8")
	}
	if l.MaxASTNodes <= 0 {
		return fmt.Errorf("max_ast_nodes must be > 0")
	}
	if l.MaxStringLiteralBytes <= 0 {
		return fmt.Errorf("max_string_literal_bytes must be > 0")
	}
	if l.MaxIdentifierBytes <= 0 {
		return fmt.Errorf("max_identifier_bytes must be > 0")
	}
	if l.MaxCommentBytes <= 0 {
		return fmt.Errorf("max_comment_bytes must be > 0")
	}
	if l.MaxIdentifierBytes > l.MaxStringLiteralBytes {
		return fmt.Errorf("max_identifier_bytes must be <= max_string_literal_bytes")
	}
	return nil
}

// Load reads a YAML limits file. A missing file yields Defaults(); a
// malformed one is a configuration error.
func Load(path string) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Limits{}, fmt.Errorf("reading limits file %s: %w", path, err)
	}

	var l Limits
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Limits{}, fmt.Errorf("parsing limits file %s: %w", path, err)
	}

	l = l.applyDefaults()
	if err := l.Validate(); err != nil {
		return Limits{}, fmt.Errorf("invalid limits in %s: %w", path, err)
	}
	return l, nil
}
