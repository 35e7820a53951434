package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/leaguelearn/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no files and no overrides", t, func() {
		t.Setenv(config.EnvConfigFile, "")
		t.Setenv(config.EnvDotenvFile, "")

		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)
		So(cfg.BlendWindow, ShouldEqual, 3)
		So(cfg.StorageBackend, ShouldEqual, "memory")
	})

	Convey("Given a YAML file and env overrides", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		yamlBody := "blend_window: 5\nblend_mode: exponential\nliquidity_trade_weight: 0.5\nrecalibration_timeout: 2m\n"
		So(os.WriteFile(path, []byte(yamlBody), 0o600), ShouldBeNil)

		t.Setenv(config.EnvDotenvFile, "")
		t.Setenv(config.EnvConfigFile, path)
		t.Setenv("LEAGUELEARN_BLEND_WINDOW", "4")
		t.Setenv("LEAGUELEARN_ADDR", ":7070")

		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)

		Convey("Then env wins over the file", func() {
			So(cfg.BlendWindow, ShouldEqual, 4)
			So(cfg.Addr, ShouldEqual, ":7070")
		})

		Convey("Then file values override defaults", func() {
			So(cfg.BlendMode, ShouldEqual, "exponential")
			So(cfg.LiquidityTradeWeight, ShouldEqual, 0.5)
			So(cfg.RecalibrationTimeout, ShouldEqual, 2*time.Minute)
		})

		Convey("Then untouched values keep defaults", func() {
			So(cfg.LiquidityAssetsWeight, ShouldEqual, 0.3)
		})
	})

	Convey("Given a dotenv file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		So(os.WriteFile(path, []byte("LEAGUELEARN_MIN_FEEDBACK=40\n"), 0o600), ShouldBeNil)

		t.Setenv(config.EnvConfigFile, "")
		t.Setenv(config.EnvDotenvFile, path)
		// Registered so t.Setenv restores it after godotenv sets it.
		t.Setenv("LEAGUELEARN_MIN_FEEDBACK", "")
		So(os.Unsetenv("LEAGUELEARN_MIN_FEEDBACK"), ShouldBeNil)

		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)
		So(cfg.MinFeedback, ShouldEqual, 40)
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv(config.EnvDotenvFile, "")
		t.Setenv(config.EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := config.Load(context.Background())
		So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
	})

	Convey("Given an invalid override", t, func() {
		t.Setenv(config.EnvDotenvFile, "")
		t.Setenv(config.EnvConfigFile, "")
		t.Setenv("LEAGUELEARN_BLEND_MODE", "cubic")

		_, err := config.Load(context.Background())
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}
