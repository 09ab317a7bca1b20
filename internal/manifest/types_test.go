package manifest

import "testing"

func TestDefaultPort(t *testing.T) {
	cases := []struct {
		kind DatabaseKind
		want int
	}{
		{Postgres, 5432},
		{MongoDB, 27017},
		{Redis, 6379},
	}
	for _, c := range cases {
		if got := DefaultPort(c.kind); got != c.want {
			t.Errorf("DefaultPort(%s) = %d, want %d", c.kind, got, c.want)
		}
	}
}
