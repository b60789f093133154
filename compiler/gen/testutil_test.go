package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mangaloom/schemagen/compiler/load"
)

// table returns a table schema with a uuid primary key and the given fields.
func table(name string, fields ...*load.Field) *load.Schema {
	return &load.Schema{
		Name:   name,
		Kind:   load.KindTable,
		Fields: append([]*load.Field{{Name: "id", Type: load.TypeUUID, PK: true}}, fields...),
	}
}

// composite returns a composite type schema with the given fields.
func composite(name string, fields ...*load.Field) *load.Schema {
	return &load.Schema{Name: name, Kind: load.KindType, Fields: fields}
}

// fk returns a uuid column referencing target.id.
func fk(name, target string) *load.Field {
	return &load.Field{Name: name, Type: load.TypeUUID, Required: true, ForeignKey: &load.ForeignKey{Type: target, Column: "id"}}
}

func text(name string) *load.Field {
	return &load.Field{Name: name, Type: load.TypeText}
}

// observed returns a config whose logger records every entry.
func observed(t *testing.T) (*Config, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	c, err := NewConfig(WithLogger(zap.New(core)))
	require.NoError(t, err)
	return c, logs
}

func typeNames(ts []*Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
