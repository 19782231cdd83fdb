package utils

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config collects the knobs a sample reads from the environment (and .env)
// and then from its command line.
type Config struct {
	Width, Height int
	Validation    bool
	LogLevel      logrus.Level
	GPU           int
	PreferMailbox bool
	TexturePath   string
	ModelPath     string
	SaveImages    bool

	// MaxFrames stops the frame loop after that many frames; 0 runs until
	// the window is closed.
	MaxFrames int
}

var ErrHelpRequested = errors.New("help requested")

func DefaultConfig() Config {
	return Config{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		LogLevel: logrus.InfoLevel,
	}
}

// LoadConfig reads VKAPP_* variables on top of DefaultConfig.
func LoadConfig() (Config, error) {
	config := DefaultConfig()
	err := config.applyEnvironment()
	return config, err
}

func (c *Config) applyEnvironment() error {
	var err error

	if c.Width, err = envInt("VKAPP_WIDTH", c.Width, 1); err != nil {
		return err
	}
	if c.Height, err = envInt("VKAPP_HEIGHT", c.Height, 1); err != nil {
		return err
	}
	if c.GPU, err = envInt("VKAPP_GPU", c.GPU, 0); err != nil {
		return err
	}
	if c.MaxFrames, err = envInt("VKAPP_MAX_FRAMES", c.MaxFrames, 0); err != nil {
		return err
	}

	validation := envy.Get("VKAPP_VALIDATION", strconv.FormatBool(c.Validation))
	c.Validation, err = strconv.ParseBool(validation)
	if err != nil {
		return errors.Wrapf(err, "VKAPP_VALIDATION=%q", validation)
	}

	level := envy.Get("VKAPP_LOG_LEVEL", c.LogLevel.String())
	c.LogLevel, err = logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "VKAPP_LOG_LEVEL=%q", level)
	}

	switch mode := strings.ToLower(envy.Get("VKAPP_PRESENT_MODE", "fifo")); mode {
	case "fifo":
		c.PreferMailbox = false
	case "mailbox":
		c.PreferMailbox = true
	default:
		return errors.Newf("VKAPP_PRESENT_MODE=%q: expected fifo or mailbox", mode)
	}

	c.TexturePath = envy.Get("VKAPP_TEXTURE", c.TexturePath)
	c.ModelPath = envy.Get("VKAPP_MODEL", c.ModelPath)
	return nil
}

// envInt reads key as an integer no smaller than min.
func envInt(key string, fallback, min int) (int, error) {
	value := envy.Get(key, strconv.Itoa(fallback))
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback, errors.Wrapf(err, "%s=%q", key, value)
	}
	if parsed < min {
		return fallback, errors.Newf("%s=%q: must be at least %d", key, value, min)
	}
	return parsed, nil
}

// ProcessCommandLineArgs applies args (without the program name) to the config.
// --env-file reloads the environment from that file, overriding variables
// already set, before the remaining options are applied.
func (c *Config) ProcessCommandLineArgs(args []string, usage io.Writer) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", errors.Newf("option %s needs a value", arg)
			}
			i++
			return args[i], nil
		}

		switch arg {
		case "--save-images":
			c.SaveImages = true
		case "--validation":
			c.Validation = true
		case "--gpu", "--frames":
			v, err := value()
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return errors.Newf("option %s: %q is not a non-negative integer", arg, v)
			}
			if arg == "--gpu" {
				c.GPU = n
			} else {
				c.MaxFrames = n
			}
		case "--texture":
			v, err := value()
			if err != nil {
				return err
			}
			c.TexturePath = v
		case "--model":
			v, err := value()
			if err != nil {
				return err
			}
			c.ModelPath = v
		case "--env-file":
			v, err := value()
			if err != nil {
				return err
			}
			if err := godotenv.Overload(v); err != nil {
				return errors.Wrapf(err, "load %s", v)
			}
			envy.Reload()
			if err := c.applyEnvironment(); err != nil {
				return err
			}
		case "--help", "-h":
			printUsage(usage)
			return ErrHelpRequested
		default:
			printUsage(usage)
			return errors.Newf("unrecognized option: %s", arg)
		}
	}

	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "\nOptions")
	fmt.Fprintln(w, "\t--save-images\n\t\tSave the first presented frame as a png in the working directory")
	fmt.Fprintln(w, "\t--validation\n\t\tEnable VK_LAYER_KHRONOS_validation and the debug messenger")
	fmt.Fprintln(w, "\t--gpu N\n\t\tUse physical device N (default 0)")
	fmt.Fprintln(w, "\t--frames N\n\t\tExit after N frames (default: run until the window closes)")
	fmt.Fprintln(w, "\t--texture PATH\n\t\tpng, jpeg, bmp or tiff texture (default: generated checkerboard)")
	fmt.Fprintln(w, "\t--model PATH\n\t\tWavefront obj mesh for the model sample")
	fmt.Fprintln(w, "\t--env-file PATH\n\t\tLoad VKAPP_* variables from PATH")
}
