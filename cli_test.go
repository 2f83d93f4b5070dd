package main

import (
	"errors"
	"testing"
)

func TestFatalMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		format string
		args   []any
		want   string
	}{
		{
			name:   "percent in error",
			err:    errors.New("open /tmp/100%done.json: no such file"),
			format: "failed to load %s",
			args:   []any{"trace"},
			want:   "fatal error:\n\tfailed to load trace.\nopen /tmp/100%done.json: no such file\n",
		},
		{
			name:   "no error",
			format: "%d songs",
			args:   []any{3},
			want:   "fatal error:\n\t3 songs\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fatalMessage(tt.err, tt.format, tt.args...); got != tt.want {
				t.Errorf("fatalMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
