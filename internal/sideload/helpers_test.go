package sideload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thatcatcamp/sideload/internal/logging"
	"github.com/thatcatcamp/sideload/internal/media"
	"github.com/thatcatcamp/sideload/internal/models"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{30, 120, 200, 255})
		}
	}
	return img
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Attachment{}))
	return db
}

// remote serves fixed bodies by path and counts requests
type remote struct {
	*httptest.Server
	hits atomic.Int32
}

func newRemote(t *testing.T, bodies map[string][]byte) *remote {
	t.Helper()
	r := &remote{}
	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.hits.Add(1)
		body, ok := bodies[req.URL.Path]
		if !ok {
			http.NotFound(w, req)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(r.Close)
	return r
}

type testEnv struct {
	pipeline *Pipeline
	db       *gorm.DB
	tempDir  string
	mediaDir string
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:       setupTestDB(t),
		tempDir:  t.TempDir(),
		mediaDir: t.TempDir(),
		logs:     &bytes.Buffer{},
	}

	store := media.NewLocalStore(env.mediaDir, "http://media.test/media")
	sizes, err := media.ParseSizes([]string{"thumbnail=150x150:crop", "medium=300x300"})
	require.NoError(t, err)

	ingestor := NewIngestor(store, 10<<20)
	ingestor.Now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	env.pipeline = New(
		NewFetcher(env.tempDir, 5*time.Second, "sideload-test", true),
		ingestor,
		&Registrar{DB: env.db, Deriver: media.NewDeriver(store, sizes)},
		NewMetrics(nil),
		logging.New(env.logs, true),
		true,
	)
	return env
}

func (env *testEnv) tempFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(env.tempDir)
	require.NoError(t, err)
	return entries
}
