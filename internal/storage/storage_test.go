package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/gymdesk/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/files")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Put(ctx, "invoices/INV-20240115-AB12.pdf", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/files/invoices/INV-20240115-AB12.pdf", url)

	ok, err := s.Exists(ctx, "invoices/INV-20240115-AB12.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, "invoices/INV-20240115-AB12.pdf")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(b))

	entries, err := os.ReadDir(filepath.Join(dir, "invoices"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestLocalStorage_Missing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)

	ok, err := s.Exists(context.Background(), "invoices/nope.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(context.Background(), "invoices/nope.pdf")
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "invoices/../../x"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestInvoiceArchive(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)
	a := NewInvoiceArchive(s)
	ctx := context.Background()

	_, err = a.Load(ctx, "INV-20240115-AB12")
	assert.True(t, IsNotFound(err))

	_, err = a.Save(ctx, "INV-20240115-AB12", []byte("first"))
	require.NoError(t, err)
	_, err = a.Save(ctx, "INV-20240115-AB12", []byte("second"))
	require.NoError(t, err)

	b, err := a.Load(ctx, "INV-20240115-AB12")
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	assert.Nil(t, NewInvoiceArchive(nil))
	assert.Equal(t, "invoices/INV-20240115-AB12.pdf", Key("INV-20240115-AB12"))
}

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(context.Background(), internal.StorageConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewStorage(context.Background(), internal.StorageConfig{Provider: "local", LocalPath: t.TempDir(), LocalURL: "/files"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = NewStorage(context.Background(), internal.StorageConfig{Provider: "gcs"})
	assert.EqualError(t, err, "unknown storage provider: gcs")

	_, err = NewStorage(context.Background(), internal.StorageConfig{Provider: "r2", R2AccountID: "acct"})
	assert.ErrorIs(t, err, ErrR2CredentialsRequired)
}

func TestR2Config_Validate(t *testing.T) {
	assert.ErrorIs(t, R2Config{}.Validate(), ErrR2AccountIDRequired)
	assert.ErrorIs(t, R2Config{AccountID: "a", AccessKeyID: "k", SecretKey: "s"}.Validate(), ErrR2BucketRequired)
	assert.NoError(t, R2Config{AccountID: "a", AccessKeyID: "k", SecretKey: "s", BucketName: "b"}.Validate())
}

func TestR2PutInput(t *testing.T) {
	in := putInput("gymdesk", Key("INV-20240115-AB12"), strings.NewReader("%PDF-1.4"), pdfContentType)
	assert.Equal(t, "invoices/INV-20240115-AB12.pdf", *in.Key)
	require.NotNil(t, in.ContentDisposition)
	assert.Equal(t, `attachment; filename="INV-20240115-AB12.pdf"`, *in.ContentDisposition)
	assert.Equal(t, "private, no-store", *in.CacheControl)

	in = putInput("gymdesk", "logo.png", strings.NewReader("png"), "image/png")
	assert.Nil(t, in.ContentDisposition)
	assert.Nil(t, in.CacheControl)
}
