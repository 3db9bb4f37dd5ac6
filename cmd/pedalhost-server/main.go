package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tvuorela/pedalhost"
	"github.com/tvuorela/pedalhost/engine"
	"github.com/tvuorela/pedalhost/malgo"
	"github.com/tvuorela/pedalhost/oto"
	"github.com/tvuorela/pedalhost/server"
	"github.com/tvuorela/pedalhost/server/gomidi"
	"github.com/tvuorela/pedalhost/version"
)

func main() {
	addr := flag.String("l", "", "Listen address for the command protocol. Overrides the settings file.")
	setFile := flag.String("set", "", "Pedalboard set file (.yml or .json) to load on startup.")
	silent := flag.Bool("s", false, "Do not open the audio device; render silently on demand. Useful for testing the protocol.")
	noInput := flag.Bool("ni", false, "Do not open a capture device; process silence as input. Metronome and backup track still play.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	settings := server.MakeSettings()
	if settings.YmlError != nil {
		log.Printf("settings.yml error, using defaults: %v", settings.YmlError)
	}
	if *addr != "" {
		settings.Addr = *addr
	}

	coord := engine.NewCoordinator(settings.SampleRate, settings.BlockSize)
	broker := engine.NewBroker()

	var input pedalhost.AudioSource = pedalhost.SilentSource{}
	if !*silent && !*noInput {
		capture, err := malgo.NewInput(settings.SampleRate, settings.BlockSize)
		if err != nil {
			log.Printf("no capture device, input is silence: %v", err)
		} else {
			input = capture
			defer capture.Close()
		}
	}
	eng := engine.NewEngine(coord, broker, input, settings.SampleRate, settings.BlockSize)

	if *setFile != "" {
		if err := loadSetFile(coord, *setFile); err != nil {
			fmt.Fprintf(os.Stderr, "could not load set %v: %v\n", *setFile, err)
			os.Exit(1)
		}
	}

	srv := server.NewServer(coord, broker, settings.SampleRate)
	if err := srv.Listen(settings.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "could not start server: %v\n", err)
		os.Exit(1)
	}
	log.Printf("listening on %v", settings.Addr)

	if settings.MIDI.Enabled {
		midiContext := gomidi.NewContext(srv.Processor(), settings.MIDI)
		defer midiContext.Close()
		if err := midiContext.TryToOpenBy(settings.MIDI.Input); err != nil {
			log.Printf("MIDI input unavailable: %v", err)
		}
	}

	var output *oto.Output
	if !*silent {
		audioContext, err := oto.NewContext(settings.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
		output = audioContext.Play(eng)
		defer output.Close()
	}

	<-srv.Done
}

func loadSetFile(coord *engine.Coordinator, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	set, err := pedalhost.ParseSet(data)
	if err != nil {
		return err
	}
	boards, err := coord.LoadSet(set)
	if err != nil {
		return err
	}
	for _, b := range boards {
		for _, u := range b.Units {
			if u.Failed() {
				log.Printf("plugin load failed, %s unit is pass-through: %v", u.Kind(), u.LoadError())
			}
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Pedalhost server: real-time guitar pedalboard audio server\nusage: pedalhost-server [flags]\n")
	flag.PrintDefaults()
}
