package jobs_test

import (
	"testing"

	"github.com/joe/batchsync/internal/jobs"
)

func TestFileCount_AddIsCommutative(t *testing.T) {
	a := jobs.FileCount{Files: 2, Bytes: 200}
	b := jobs.FileCount{Files: 5, Bytes: 500}

	if a.Add(b) != b.Add(a) {
		t.Errorf("Expected a+b == b+a, got %v and %v", a.Add(b), b.Add(a))
	}
}

func TestFileCount_AddIsAssociative(t *testing.T) {
	a := jobs.FileCount{Files: 1, Bytes: 10}
	b := jobs.FileCount{Files: 2, Bytes: 20}
	c := jobs.FileCount{Files: 3, Bytes: 30}

	left := a.Add(b).Add(c)
	right := a.Add(b.Add(c))

	if left != right {
		t.Errorf("Expected (a+b)+c == a+(b+c), got %v and %v", left, right)
	}
}

func TestFileCount_ZeroValueIsIdentity(t *testing.T) {
	a := jobs.FileCount{Files: 7, Bytes: 700}

	var zero jobs.FileCount

	if a.Add(zero) != a {
		t.Errorf("Expected a+zero == a, got %v", a.Add(zero))
	}

	if zero.Add(a) != a {
		t.Errorf("Expected zero+a == a, got %v", zero.Add(a))
	}
}

func TestFileCount_FoldsAcrossCounts(t *testing.T) {
	counts := []jobs.FileCount{
		{Files: 2, Bytes: 200},
		{Files: 0, Bytes: 0},
		{Files: 5, Bytes: 500},
	}

	var total jobs.FileCount
	for _, c := range counts {
		total = total.Add(c)
	}

	want := jobs.FileCount{Files: 7, Bytes: 700}
	if total != want {
		t.Errorf("Expected %v, got %v", want, total)
	}
}

func TestFileCount_String(t *testing.T) {
	cases := []struct {
		count jobs.FileCount
		want  string
	}{
		{jobs.FileCount{}, "0 files (0 B)"},
		{jobs.FileCount{Files: 1, Bytes: 500}, "1 files (500 B)"},
		{jobs.FileCount{Files: 7, Bytes: 1536}, "7 files (1.5 KB)"},
		{jobs.FileCount{Files: 3, Bytes: 5 * 1024 * 1024}, "3 files (5.0 MB)"},
	}

	for _, tc := range cases {
		if got := tc.count.String(); got != tc.want {
			t.Errorf("Expected %q, got %q", tc.want, got)
		}
	}
}
