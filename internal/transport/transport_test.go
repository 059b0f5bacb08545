package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avgplus/avg-release/internal/config"
	"github.com/avgplus/avg-release/internal/transport/local"
	"github.com/avgplus/avg-release/internal/transport/s3"
	"github.com/avgplus/avg-release/internal/transport/sftp"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tr, err := New(&config.Remote{Kind: config.RemoteSFTP, Root: "/srv", Host: "h", Username: "u"})
	require.NoError(t, err)
	require.IsType(t, &sftp.Client{}, tr)

	tr, err = New(&config.Remote{Kind: config.RemoteS3, Root: "live", Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)
	require.IsType(t, &s3.Store{}, tr)

	tr, err = New(&config.Remote{Kind: config.RemoteLocal, Root: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &local.Store{}, tr)
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	_, err := New(&config.Remote{Kind: config.RemoteSFTP, Root: "/srv"})
	require.Error(t, err)

	_, err = New(&config.Remote{Kind: "ftp", Root: "/srv"})
	require.Error(t, err)
}
