package utils

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/xlab/closer"
)

// Main is the body of every sample's main function. It loads the
// configuration from the environment and os.Args and runs the sample's steps
// followed by SampleInfo.Cleanup, both on the calling goroutine. A signal
// only asks the frame loop to stop and holds the process until that cleanup
// is done. Any error is logged and the process exits with status 1.
//
// Callers must lock the main goroutine to its OS thread in init, since SDL
// and the presentation engine expect to stay on one thread.
func Main(name string, run func(info *SampleInfo) error) {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %+v\n", name, err)
		os.Exit(1)
	}

	err = config.ProcessCommandLineArgs(os.Args[1:], os.Stdout)
	if errors.Is(err, ErrHelpRequested) {
		return
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(2)
	}

	info := NewSampleInfo(name, config)

	cleaned := make(chan struct{})
	closer.Bind(info.signalHook(cleaned))

	err = info.runSample(run)
	close(cleaned)
	if err != nil {
		info.Log.Errorf("%+v", err)
		closer.Exit(1)
	}

	closer.Close()
}

// runSample runs the steps and then Cleanup, whatever the steps returned.
func (i *SampleInfo) runSample(run func(info *SampleInfo) error) error {
	defer i.Cleanup()
	return run(i)
}

// signalHook is bound to closer, whose callbacks run on its own goroutine
// before the process exits. It stops the frame loop and waits for cleaned,
// which is closed once runSample has returned.
func (i *SampleInfo) signalHook(cleaned <-chan struct{}) func() {
	return func() {
		i.RequestStop()
		<-cleaned
	}
}
