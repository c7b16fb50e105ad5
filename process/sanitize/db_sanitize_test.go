package sanitize

import (
	"reflect"
	"testing"
)

func TestValidTables(t *testing.T) {
	got := ValidTables(" users, ,transactions;drop table x,_tmp1,1bad")
	want := []string{"users", "_tmp1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestTruncateStatement(t *testing.T) {
	got := TruncateStatement([]string{"transactions", "savings"})
	want := `TRUNCATE TABLE "transactions", "savings" RESTART IDENTITY CASCADE`
	if got != want {
		t.Fatalf("expected %s got %s", want, got)
	}
}

func TestDefaultTablesAreValid(t *testing.T) {
	if got := ValidTables(joinTables()); len(got) != len(DefaultTables) {
		t.Fatalf("default tables rejected: %v", got)
	}
}

func joinTables() string {
	s := ""
	for i, t := range DefaultTables {
		if i > 0 {
			s += ","
		}
		s += t
	}
	return s
}
