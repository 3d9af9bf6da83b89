package main

import (
	"os"
	"runtime"

	"github.com/remeh/sizedwaitgroup"
	"github.com/sirupsen/logrus"
)

// Run starts f on wg, waiting for a free slot first. A panic in f takes the
// whole process down with its stack logged.
func Run(wg *sizedwaitgroup.SizedWaitGroup, log logrus.FieldLogger, f func()) {
	wg.Add()
	go func() {
		defer wg.Done()
		defer Recover(log)
		f()
	}()
}

func Recover(log logrus.FieldLogger) {
	if r := recover(); r != nil {
		HandlePanic(log, r)
	}
}

func HandlePanic(log logrus.FieldLogger, panic any) {
	defer os.Exit(1)

	buf := make([]byte, 100000)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	log.WithField("stack", string(buf)).Errorf("Panic: %v", panic)
}
