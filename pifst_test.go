package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	pi1 := write("QH.windowed.pi", "CHROM\tBIN_START\tBIN_END\tN_VARIANTS\tPI\nchr1\t0\t50000\t10\t0.002\n")
	pi2 := write("QL.windowed.pi", "CHROM\tBIN_START\tBIN_END\tN_VARIANTS\tPI\nchr1\t0\t50000\t8\t0.004\n")
	fst := write("QH_QL.fst", "CHROM\tBIN_START\tBIN_END\tN_VARIANTS\tWEIGHTED_FST\tMEAN_FST\nchr1\t0\t50000\t9\t0.15\t0.12\n")
	out := filepath.Join(dir, "QH_QL.tab")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{name: "five arguments", args: []string{"QH", pi1, "QL", pi2, fst}, wantCode: 1, wantErr: "output-file"},
		{name: "seven arguments", args: []string{"QH", pi1, "QL", pi2, fst, out, "extra"}, wantCode: 1, wantErr: "unexpected extra"},
		{name: "missing input file", args: []string{"QH", pi1, "QL", filepath.Join(dir, "nope.pi"), fst, out}, wantCode: 1, wantErr: "nope.pi"},
		{name: "ok", args: []string{"QH", pi1, "QL", pi2, fst, out}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			require.Equal(t, tt.wantCode, code, stderr.String())
			if tt.wantCode == 0 {
				assert.Contains(t, stdout.String(), "merged table at: "+out)
				assert.FileExists(t, out)
				return
			}
			assert.Contains(t, stderr.String(), "pifst: error:")
			assert.Contains(t, stderr.String(), tt.wantErr)
			assert.Contains(t, stderr.String(), "usage: pifst")
			assert.NoFileExists(t, out)
		})
	}
}
