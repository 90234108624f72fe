package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/vsariola/wavebank"
	"github.com/vsariola/wavebank/cmd"
	"github.com/vsariola/wavebank/editor"
	"github.com/vsariola/wavebank/oto"
	"github.com/vsariola/wavebank/version"
	"go.uber.org/zap"
)

const (
	updateInterval   = 10 * time.Millisecond
	recoveryInterval = 30 * time.Second
	drainTimeout     = 50 * time.Millisecond
)

func main() {
	config := cmd.MakeConfig()
	config.RegisterFlags(flag.CommandLine)
	speed := flag.Float64("speed", 0, "Auto-advance the morph position through the bank at this many waves per second.")
	interpolate := flag.Bool("interp", false, "Crossfade between neighboring waves instead of snapping to the nearest one.")
	grid := flag.Bool("grid", false, "Navigate the bank as a grid instead of a line.")
	recoverFlag := flag.Bool("recover", false, "Restore the session saved in the recovery file. A bank file given as an argument is loaded on top of it.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String("wavebank-play"))
		os.Exit(0)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cmd.NewLogger(config.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	if config.YmlError != nil {
		logger.Warn("using default config", zap.Error(config.YmlError))
	}

	broker := editor.NewBroker()
	model := editor.NewModel(broker,
		editor.WithLogger(logger),
		editor.WithBankSize(config.Bank.Width, config.Bank.Height),
		editor.WithMaxUndo(config.History.MaxUndo),
		editor.WithRecoveryFile(config.RecoveryFilePath()),
	)
	if *recoverFlag {
		if err := model.History().LoadRecovery(); err != nil {
			logger.Warn("session not recovered", zap.String("path", config.RecoveryFilePath()), zap.Error(err))
		} else {
			logger.Info("session recovered", zap.String("path", config.RecoveryFilePath()))
		}
	}
	if a := flag.Args(); len(a) > 0 {
		f, err := os.Open(a[0])
		if err != nil {
			logger.Fatal("could not open bank", zap.Error(err))
		}
		if err := model.ReadBank(f); err != nil {
			logger.Fatal("could not load bank", zap.String("path", a[0]), zap.Error(err))
		}
	}
	play := model.Play()
	play.Frequency().Set(config.Preview.Frequency)
	play.Volume().Set(config.Preview.Volume)
	play.Enabled().Set(true)
	morph := model.Morph()
	morph.GridMode().Set(*grid)
	morph.Interpolate().Set(*interpolate)
	morph.ZSpeed().Set(*speed)

	midiContext := cmd.NewMidiContext(broker)
	if config.MIDI.Input != "" {
		input, err := editor.FindMIDIDevice(midiContext, config.MIDI.Input)
		if err == nil {
			err = input.Open()
		}
		if err != nil {
			logger.Warn("MIDI input not opened", zap.String("prefix", config.MIDI.Input), zap.Error(err))
		} else {
			logger.Info("MIDI input opened", zap.Stringer("input", input))
		}
	}

	audioContext, err := oto.NewContext(config.Audio.SampleRate)
	if err != nil {
		logger.Fatal("could not acquire oto AudioContext", zap.Error(err))
	}
	player := editor.NewPlayer(model.Bridge(), broker, config.Audio.SampleRate)
	audioCloser := audioContext.Play(func(buf wavebank.AudioBuffer) error {
		player.Process(buf)
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	lines := readLines(os.Stdin, done)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()
	recovery := time.NewTicker(recoveryInterval)
	defer recovery.Stop()
	last := time.Now()
loop:
	for {
		select {
		case msg := <-broker.ToModel:
			model.ProcessMsg(msg)
		case now := <-ticker.C:
			model.Morph().Update(now.Sub(last))
			last = now
		case <-recovery.C:
			if err := model.History().SaveRecovery(); err != nil {
				logger.Debug("recovery not saved", zap.Error(err))
			}
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if quit := execute(model, audioContext, line); quit {
				break loop
			}
		case <-interrupt:
			break loop
		}
	}
	if err := audioCloser.Close(); err != nil {
		logger.Error("audio", zap.Error(err))
	}
	midiContext.Close()
	for {
		msg, ok := editor.TimeoutReceive(broker.ToModel, drainTimeout)
		if !ok {
			break
		}
		model.ProcessMsg(msg)
	}
	if err := model.History().SaveRecovery(); err != nil {
		logger.Debug("recovery not saved", zap.Error(err))
	}
}

// readLines sends the lines of r to the returned channel until r ends or
// done is closed; the channel is closed then.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// suspender is implemented by audio contexts that can pause the output
// device.
type suspender interface {
	Suspend() error
	Resume() error
}

// execute runs one command line typed by the user and prints the resulting
// state. It returns true if the user wants to quit.
func execute(model *editor.Model, audio suspender, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	arg := func(i int) float64 {
		if i >= len(fields) {
			return 0
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "not a number: %v\n", fields[i])
		}
		return v
	}
	switch fields[0] {
	case "q", "quit":
		return true
	case "s", "select":
		model.Selection().Select(int(arg(1)))
	case "n", "next":
		model.Selection().Next().Do()
	case "p", "prev":
		model.Selection().Prev().Do()
	case "x":
		model.Morph().X().Set(arg(1))
	case "y":
		model.Morph().Y().Set(arg(1))
	case "z":
		model.Morph().Z().Set(arg(1))
	case "speed":
		model.Morph().ZSpeed().Set(arg(1))
	case "interp":
		model.Morph().Interpolate().Toggle()
	case "grid":
		model.Morph().GridMode().Toggle()
	case "freq":
		model.Play().Frequency().Set(arg(1))
	case "vol":
		model.Play().Volume().Set(arg(1))
	case "mute":
		model.Play().Enabled().Toggle()
	case "rand":
		model.Wave().RandomizeEffects().Do()
	case "clear":
		model.Wave().ClearEffects().Do()
	case "bake":
		model.Wave().BakeEffects().Do()
	case "pause":
		if err := audio.Suspend(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case "resume":
		if err := audio.Resume(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case "u", "undo":
		model.History().Undo().Do()
	case "r", "redo":
		model.History().Redo().Do()
	case "w", "write":
		if len(fields) < 2 {
			fmt.Fprintln(os.Stderr, "usage: write <file>")
			break
		}
		f, err := os.Create(fields[1])
		if err == nil {
			err = model.WriteBank(f)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case "waves":
		if len(fields) < 2 {
			fmt.Fprintln(os.Stderr, "usage: waves <dir>")
			break
		}
		if err := model.SaveWaves(fields[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
		return false
	}
	s := model.Morph().Value()
	w := model.Bank().Width()
	lo, hi := model.Selection().Range()
	fmt.Printf("selection [%d,%d] %v x=%.2f y=%.2f z=%.2f speed=%.2f interp=%v undo=%v redo=%v\n",
		lo, hi, s.Mode(), s.X(w), s.Y(w), s.Z(w), s.ZSpeed, s.Interpolate,
		model.History().Undo().Enabled(), model.History().Redo().Enabled())
	return false
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "wavebank command line utility for auditioning wavetable banks.\nUsage: %s [flags] [bank file]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands read from standard input: select <i>, next, prev, x|y|z <v>, speed <v>, interp, grid, freq <hz>, vol <db>, mute, pause, resume, rand, clear, bake, undo, redo, write <file>, waves <dir>, quit")
	flag.PrintDefaults()
}
