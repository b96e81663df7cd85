package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fly-io/camctl/internal/config"
	"github.com/fly-io/camctl/pkg/errors"
	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/fly-io/camctl/pkg/native"
	"github.com/fly-io/camctl/pkg/native/gphoto2"
	"github.com/fly-io/camctl/pkg/native/simulated"
)

// ensureDirectories creates all necessary directories for the application
func ensureDirectories(sqlitePath, fsmDBPath, outputDir string) error {
	// Create database directory
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	// Create FSM database directory (only needed for shoot command)
	if fsmDBPath != "" {
		if err := os.MkdirAll(fsmDBPath, 0755); err != nil {
			return errors.Wrap(err, "failed to create FSM directory")
		}
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config invalid")
	}
	return cfg, nil
}

func newDriver(name string) (native.Driver, error) {
	slog.Info("camera_driver_select", "driver", name)
	if name == config.DriverSimulated {
		return simulated.New(simulated.DefaultConfig()), nil
	}
	return gphoto2.NewDriver()
}

// camera is an opened camera and the session that opened it.
type camera struct {
	session *gphoto.Session
	*gphoto.Camera
}

// openCamera autodetects a camera. Errors are tagged with the failing
// operation.
func openCamera(driver string) (*camera, error) {
	drv, err := newDriver(driver)
	if err != nil {
		return nil, errors.Op("driver", err)
	}
	s, err := gphoto.NewSession(drv)
	if err != nil {
		return nil, errors.Op("session", err)
	}
	cam, err := gphoto.Autodetect(s)
	if err != nil {
		s.Close()
		return nil, errors.Op("autodetect", err)
	}
	slog.Info("camera_opened", "model", cam.Abilities().Model, "port", cam.Port().Path())
	return &camera{session: s, Camera: cam}, nil
}

func (c *camera) Close() error {
	err := c.Camera.Close()
	if serr := c.session.Close(); err == nil {
		err = serr
	}
	return err
}
