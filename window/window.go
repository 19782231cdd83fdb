// Package window hosts the swapchain surface: a single SDL window with a
// non-blocking message pump and an open/closed query.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	DefaultTitle  = "VulkanTestApplication"
	DefaultWidth  = 800
	DefaultHeight = 600
)

type Config struct {
	Title  string
	Width  int
	Height int
}

// RenderWindow is the platform window a surface is created for. It is not
// resizable; a close request from the user is the only state change it tracks.
type RenderWindow struct {
	config Config

	window *sdl.Window
	id     uint32
	open   bool

	poll         func() sdl.Event
	initVideo    func() error
	createWindow func(title string, width, height int32) (*sdl.Window, error)
	quit         func()
}

func initVideo() error {
	return sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS)
}

func createWindow(title string, width, height int32) (*sdl.Window, error) {
	return sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		width, height,
		sdl.WINDOW_HIDDEN|sdl.WINDOW_VULKAN)
}

func New(config Config) *RenderWindow {
	if config.Title == "" {
		config.Title = DefaultTitle
	}
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}

	return &RenderWindow{
		config:       config,
		poll:         sdl.PollEvent,
		initVideo:    initVideo,
		createWindow: createWindow,
		quit:         sdl.Quit,
	}
}

// Create registers the window with the platform. The window starts hidden.
// If it fails after SDL was initialised, SDL is shut down again.
func (w *RenderWindow) Create() error {
	if w.window != nil {
		return errors.New("window: already created")
	}

	if err := w.initVideo(); err != nil {
		return errors.Wrap(err, "window: init video")
	}

	window, err := w.createWindow(w.config.Title, int32(w.config.Width), int32(w.config.Height))
	if err != nil {
		w.quit()
		return errors.Wrap(err, "window: create")
	}

	id, err := window.GetID()
	if err != nil {
		_ = window.Destroy()
		w.quit()
		return errors.Wrap(err, "window: get id")
	}

	w.window = window
	w.id = id
	w.open = true
	return nil
}

func (w *RenderWindow) Show() {
	if w.window != nil {
		w.window.Show()
	}
}

func (w *RenderWindow) Hide() {
	if w.window != nil {
		w.window.Hide()
	}
}

func (w *RenderWindow) IsOpen() bool {
	return w.open
}

// DispatchEvents drains every pending event and returns without waiting for
// new ones.
func (w *RenderWindow) DispatchEvents() {
	for event := w.poll(); event != nil; event = w.poll() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.open = false
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE && e.WindowID == w.id {
				w.open = false
			}
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE && e.WindowID == w.id {
				w.open = false
			}
		}
	}
}

func (w *RenderWindow) NativeHandle() *sdl.Window {
	return w.window
}

func (w *RenderWindow) Size() (int, int) {
	return w.config.Width, w.config.Height
}

// InstanceExtensions lists the instance extensions the platform needs to
// create a surface for this window.
func (w *RenderWindow) InstanceExtensions() []string {
	if w.window == nil {
		return nil
	}
	return w.window.VulkanGetInstanceExtensions()
}

func (w *RenderWindow) Destroy() {
	w.open = false
	if w.window == nil {
		return
	}

	_ = w.window.Destroy()
	w.window = nil
	w.quit()
}
