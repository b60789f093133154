package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewSchemaError("Manga", "titles", "unknown composite", cause)

		assert.Contains(t, err.Error(), "schemagen: schema error")
		assert.Contains(t, err.Error(), "type Manga")
		assert.Contains(t, err.Error(), "field titles")
		assert.Contains(t, err.Error(), "unknown composite")
		assert.Contains(t, err.Error(), "underlying error")
	})

	t.Run("Error message with type only", func(t *testing.T) {
		err := &SchemaError{Type: "Manga"}
		assert.Contains(t, err.Error(), "type Manga")
		assert.NotContains(t, err.Error(), "field")
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewSchemaError("Manga", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrInvalidSchema", func(t *testing.T) {
		err := NewSchemaError("Manga", "", "", nil)
		assert.True(t, errors.Is(err, ErrInvalidSchema))
	})

	t.Run("IsSchemaError through errors.Join", func(t *testing.T) {
		err := errors.Join(errors.New("other"), NewSchemaError("Manga", "titles", "test", nil))
		assert.True(t, IsSchemaError(err))
		assert.False(t, IsSchemaError(errors.New("other")))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("SoftDeleteColumn", "bad col", "invalid column name")

		assert.Contains(t, err.Error(), "schemagen: config error")
		assert.Contains(t, err.Error(), "SoftDeleteColumn")
		assert.Contains(t, err.Error(), "bad col")
		assert.Contains(t, err.Error(), "invalid column name")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Logger", nil, "cannot be nil")

		assert.Contains(t, err.Error(), "Logger")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := NewConfigError("Target", nil, "missing")
		assert.True(t, errors.Is(err, ErrMissingConfig))
		assert.True(t, IsConfigError(err))
	})
}

func TestRelationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		err := NewRelationError("bridge", "MangaTag", "Tag", "tag_uid", "column not found")

		assert.Contains(t, err.Error(), "schemagen: relation error on bridge")
		assert.Contains(t, err.Error(), "MangaTag -> Tag")
		assert.Contains(t, err.Error(), "column tag_uid")
		assert.Contains(t, err.Error(), "column not found")
	})

	t.Run("Error message with from only", func(t *testing.T) {
		err := &RelationError{From: "MangaTag", Message: "test"}
		assert.Contains(t, err.Error(), "from MangaTag")
		assert.NotContains(t, err.Error(), "->")
	})

	t.Run("Is matches ErrInvalidRelation", func(t *testing.T) {
		err := NewRelationError("o2m", "Chapter", "Manga", "manga_id", "")
		assert.True(t, errors.Is(err, ErrInvalidRelation))
		assert.True(t, IsRelationError(err))
	})
}

func TestGraphError(t *testing.T) {
	err := &GraphError{Stuck: map[string][]string{
		"B": {"A"},
		"A": {"B"},
	}}

	assert.Equal(t, "schemagen: unresolvable dependency graph: A requires [B]; B requires [A]", err.Error())
	assert.Equal(t, []string{"A", "B"}, err.Entities())
	assert.True(t, errors.Is(err, ErrUnresolvableGraph))
	assert.True(t, IsGraphError(err))
	assert.False(t, IsGraphError(errors.New("other")))
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("write failed")
		err := NewGenerationError("scripts", "manga.sql", "cannot write file", cause)

		assert.Contains(t, err.Error(), "schemagen: generation error")
		assert.Contains(t, err.Error(), "phase scripts")
		assert.Contains(t, err.Error(), "file: manga.sql")
		assert.Contains(t, err.Error(), "cannot write file")
		assert.Contains(t, err.Error(), "write failed")
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("io error")
		err := NewGenerationError("access", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrGenerationFailed))
	})
}

func TestErrorTypeChecking(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		isSchema   bool
		isConfig   bool
		isRelation bool
		isGraph    bool
		isGen      bool
	}{
		{
			name:     "SchemaError",
			err:      NewSchemaError("Manga", "", "", nil),
			isSchema: true,
		},
		{
			name:     "ConfigError",
			err:      NewConfigError("Logger", nil, ""),
			isConfig: true,
		},
		{
			name:       "RelationError",
			err:        NewRelationError("bridge", "MangaTag", "Tag", "", ""),
			isRelation: true,
		},
		{
			name:    "GraphError",
			err:     &GraphError{Stuck: map[string][]string{"A": {"B"}}},
			isGraph: true,
		},
		{
			name:  "GenerationError",
			err:   NewGenerationError("scripts", "", "", nil),
			isGen: true,
		},
		{
			name: "Other error",
			err:  errors.New("other"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isSchema, IsSchemaError(tt.err))
			assert.Equal(t, tt.isConfig, IsConfigError(tt.err))
			assert.Equal(t, tt.isRelation, IsRelationError(tt.err))
			assert.Equal(t, tt.isGraph, IsGraphError(tt.err))
			assert.Equal(t, tt.isGen, IsGenerationError(tt.err))
		})
	}
}

func TestErrorsAs(t *testing.T) {
	t.Run("As SchemaError", func(t *testing.T) {
		err := NewSchemaError("Manga", "titles", "invalid", nil)
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "Manga", schemaErr.Type)
		assert.Equal(t, "titles", schemaErr.Field)
	})

	t.Run("As GraphError", func(t *testing.T) {
		var err error = &GraphError{Stuck: map[string][]string{"A": {"Missing"}}}
		var graphErr *GraphError
		require.True(t, errors.As(err, &graphErr))
		assert.Equal(t, []string{"Missing"}, graphErr.Stuck["A"])
	})
}
