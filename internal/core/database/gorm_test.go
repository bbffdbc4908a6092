package database

import (
	"errors"
	"testing"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		in, user, pass, want string
	}{
		{"root:pw@tcp(db:3306)/app?parseTime=true", "", "", "root:pw@tcp(db:3306)/app?parseTime=true"},
		{"mysql://u:p@db:3306/app", "", "", "u:p@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
		{"jdbc:mysql://db:3306/app?useSSL=false&useUnicode=true", "admin", "s3", "admin:s3@tcp(db:3306)/app?charset=utf8mb4&parseTime=true&tls=false"},
	}
	for _, c := range cases {
		if got := normalizeMySQLDSN(c.in, c.user, c.pass); got != c.want {
			t.Errorf("normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMaskDSN(t *testing.T) {
	if got := maskDSN("u:secret@tcp(db)/x"); got != "u:****@tcp(db)/x" {
		t.Fatalf("got %q", got)
	}
	if got := maskDSN("host=db password=secret dbname=x"); got != "host=db password=**** dbname=x" {
		t.Fatalf("got %q", got)
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	if _, err := Dialector(Opts{Driver: "sqlite"}); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("err = %v", err)
	}
}
