package sql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func BenchmarkRelations_Attach(b *testing.B) {
	tags := make([]tag, 16)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewRelations()
		Attach(r, source{ID: "s1"})
		Attach(r, tags...)
	}
}

func BenchmarkRelations_Related(b *testing.B) {
	r := NewRelations()
	Attach(r, make([]tag, 16)...)
	Attach(r, source{ID: "s1"})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Related[tag](r)
	}
}

func BenchmarkDriver_Batch(b *testing.B) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()
	drv := OpenDB(db)
	stmts := []Statement{NewStatement(rootQuery, "m1"), NewStatement(bridgeQuery, "m1")}
	for i := 0; i < b.N; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(rootQuery).WithArgs("m1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("m1", "Berserk"))
		mock.ExpectQuery(bridgeQuery).WithArgs("m1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "action"))
		mock.ExpectCommit()
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := drv.Batch(ctx, stmts, func(r BatchReader) error {
			var m manga
			if err := r.One(&m); err != nil {
				return err
			}
			var tags []tag
			return r.Many(&tags)
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
