package gen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/gen/script"
	"github.com/mangaloom/schemagen/compiler/gen/sql"
	"github.com/mangaloom/schemagen/compiler/load"
)

func BenchmarkNewGraph(b *testing.B) {
	schemas, err := load.ReadFiles("../load/testdata/schema.yaml")
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := gen.NewGraph(gen.MustNewConfig(), schemas...)
		require.NoError(b, err)
	}
}

func BenchmarkGraph_Gen(b *testing.B) {
	schemas, err := load.ReadFiles("../load/testdata/schema.yaml")
	require.NoError(b, err)
	graph, err := gen.NewGraph(gen.MustNewConfig(), schemas...)
	require.NoError(b, err)
	target := b.TempDir()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := graph.Gen(
			script.Generator(script.Options{Target: target}),
			sql.Generator(sql.Options{Target: target + "/store"}),
		)
		require.NoError(b, err)
	}
}
