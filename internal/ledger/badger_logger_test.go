package ledger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadgerLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBadgerLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Infof("compaction finished for level %d\n", 2)
	assert.Empty(t, buf.String(), "info is demoted below the handler level")

	logger.Warningf("value log %s truncated\n", "000001.vlog")
	assert.Contains(t, buf.String(), `"msg":"value log 000001.vlog truncated"`)
	assert.Contains(t, buf.String(), `"component":"badger"`)
}
