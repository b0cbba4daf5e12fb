// ABOUTME: Entry point for the waveplay desktop player
// ABOUTME: Wires backend, peak pipeline, websocket fan-out and TUI
package main

import (
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waveplay-audio/waveplay-go/internal/backend"
	"github.com/waveplay-audio/waveplay-go/internal/remote"
	"github.com/waveplay-audio/waveplay-go/internal/ui"
	"github.com/waveplay-audio/waveplay-go/pkg/bus"
	"github.com/waveplay-audio/waveplay-go/pkg/player"
	"github.com/waveplay-audio/waveplay-go/pkg/waveform"
)

var (
	file       = flag.String("file", "", "Media file to open (wav, mp3, flac)")
	window     = flag.Int("window", waveform.DefaultSamplesPerPeak, "Samples per waveform peak")
	listenAddr = flag.String("listen", "", "Optional websocket listen address for external renderers (e.g. :8091)")
	logFile    = flag.String("log-file", "waveplay.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if *file == "" {
		log.SetOutput(os.Stderr)
		log.Fatalf("no media file given, use -file")
	}

	// Event bus and peak pipeline
	evBus := bus.New()
	waveform.NewPublisher(evBus, waveform.NewSampler(*window))

	// Playback backend feeding the pipeline
	be := backend.NewOto(evBus)

	// Optional websocket fan-out for external renderers
	var remoteSrv *remote.Server
	if *listenAddr != "" {
		remoteSrv = remote.NewServer(evBus)
		go func() {
			log.Printf("remote renderer socket on %s", *listenAddr)
			if err := http.ListenAndServe(*listenAddr, remoteSrv); err != nil {
				log.Printf("remote listen failed: %v", err)
			}
		}()
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Player over the backend, pushing property changes to the TUI
	var p *player.Player
	p, err = player.New(player.Config{
		Backend: be,
		OnChange: func(prop player.Property) {
			msg := ui.StatusMsg{}
			switch prop {
			case player.PropState, player.PropIsPlaying, player.PropIsPaused, player.PropIsStopped:
				msg.State = p.State().String()
			case player.PropSource:
				msg.Source = p.Source()
			case player.PropPosition:
				pos := p.Position()
				msg.Position = &pos
			case player.PropDuration:
				d := p.Duration()
				msg.Duration = &d
			case player.PropVolume, player.PropIsMuted:
				vol := int(p.Volume() * 100)
				muted := p.IsMuted()
				msg.Volume = &vol
				msg.Muted = &muted
			case player.PropRate:
				r := p.Rate()
				msg.Rate = &r
			case player.PropIsLooping:
				l := p.IsLooping()
				msg.Looping = &l
			case player.PropError:
				if err := p.Err(); err != nil {
					msg.Error = err.Error()
				}
			default:
				return
			}
			updateTUI(msg)
			if remoteSrv != nil {
				remoteSrv.PublishState(p)
			}
		},
		OnError: func(err error) {
			log.Printf("player fault: %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	// Feed the TUI peak meter from the pipeline
	var buffers, peakCount int64
	bus.Subscribe(evBus, func(ev waveform.PeaksReceived) {
		buffers++
		peakCount += int64(len(ev.Peaks))
		level := peakLevel(ev.Peaks)
		updateTUI(ui.StatusMsg{Level: &level, Buffers: buffers, Peaks: peakCount})
	})

	p.SetSource(*file)
	if err := p.Err(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("cannot open %s: %v", *file, err)
	}
	p.Play()

	// Command loop for TUI key presses
	if controls != nil {
		go handleControls(p, controls)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	if remoteSrv != nil {
		remoteSrv.Close()
	}
	if err := p.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}

	log.Printf("Player stopped")
}

// handleControls maps TUI commands onto player operations
func handleControls(p *player.Player, controls *ui.Controls) {
	for cmd := range controls.Commands {
		switch cmd {
		case ui.CmdPlayPause:
			if p.IsPlaying() {
				p.Pause()
			} else {
				p.Play()
			}
		case ui.CmdStop:
			p.Stop()
		case ui.CmdVolumeUp:
			p.SetVolume(p.Volume() + 0.05)
		case ui.CmdVolumeDown:
			p.SetVolume(p.Volume() - 0.05)
		case ui.CmdMuteToggle:
			if p.IsMuted() {
				p.UnMute()
			} else {
				p.Mute()
			}
		case ui.CmdFaster:
			p.Faster()
		case ui.CmdSlower:
			p.Slower()
		case ui.CmdLoopToggle:
			p.ToggleLoop()
		}
	}
}

// peakLevel reduces a peak window sequence to one normalized meter value
func peakLevel(peaks []waveform.Peak) float64 {
	var max int32
	for _, pk := range peaks {
		if pk.Max > max {
			max = pk.Max
		}
		if -pk.Min > max {
			max = -pk.Min
		}
	}
	return float64(max) / float64(1<<23)
}
