// Package transport selects the deployment transport configured for a project.
package transport

import (
	"fmt"

	"github.com/avgplus/avg-release/internal/config"
	"github.com/avgplus/avg-release/internal/service/deployer"
	"github.com/avgplus/avg-release/internal/transport/local"
	"github.com/avgplus/avg-release/internal/transport/s3"
	"github.com/avgplus/avg-release/internal/transport/sftp"
)

// New creates the transport named by remote.Kind.
func New(remote *config.Remote) (deployer.Transport, error) {
	if err := config.ValidateRemote(remote); err != nil {
		return nil, err
	}

	switch remote.Kind {
	case config.RemoteSFTP:
		return sftp.New(sftp.Options{
			Host:           remote.Host,
			Port:           remote.Port,
			Username:       remote.Username,
			Password:       remote.Password,
			PrivateKeyPath: remote.PrivateKeyPath,
			KnownHostsPath: remote.KnownHostsPath,
			Timeout:        remote.Timeout,
		}), nil
	case config.RemoteS3:
		return s3.New(s3.Options{
			Endpoint:  remote.Endpoint,
			Bucket:    remote.Bucket,
			Region:    remote.Region,
			AccessKey: remote.AccessKey,
			SecretKey: remote.SecretKey,
			UseSSL:    remote.UseSSL,
		}), nil
	case config.RemoteLocal:
		return local.New(remote.Root), nil
	default:
		return nil, fmt.Errorf("unsupported remote kind %q", remote.Kind)
	}
}
