// Pedalhost-process runs audio files through a pedalboard offline: read a
// wav, render it through the chain at file speed, write the result. Uses the
// same engine as the live server, just pulled by the file loop instead of the
// audio hardware.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/viterin/vek/vek32"

	"github.com/tvuorela/pedalhost"
	"github.com/tvuorela/pedalhost/engine"
	"github.com/tvuorela/pedalhost/version"
)

const blockSize = 512

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original audio file is.")
	boardFile := flag.String("b", "", "Pedalboard file (.json) describing the chain to process with.")
	rawOut := flag.Bool("r", false, "Output the processed audio as .raw file. By default, saves mono float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	normalize := flag.Bool("n", false, "Normalize the output so its peak is at full scale.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help || *boardFile == "" {
		flag.Usage()
		os.Exit(0)
	}
	boardBytes, err := os.ReadFile(*boardFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read pedalboard file %v: %v\n", *boardFile, err)
		os.Exit(1)
	}
	board, err := pedalhost.ParsePedalboard(boardBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse pedalboard file %v: %v\n", *boardFile, err)
		os.Exit(1)
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				os.Stdout.Write(contents)
				return nil
			}
			dir, name := filepath.Split(filename)
			if *directory != "" {
				dir = *directory
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if dir != "" {
				if err := os.MkdirAll(dir, os.ModePerm); err != nil {
					return fmt.Errorf("could not create output directory %v: %v", dir, err)
				}
			}
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		inputBytes, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		input, sampleRate, err := pedalhost.ReadWav(inputBytes)
		if err != nil {
			return fmt.Errorf("could not decode %v: %v", filename, err)
		}
		buffer, err := render(board, input, sampleRate)
		if err != nil {
			return fmt.Errorf("could not process %v: %v", filename, err)
		}
		if *normalize {
			normalizePeak(buffer)
		}
		if *rawOut {
			raw, err := buffer.Raw(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			return output(".raw", raw)
		}
		wav, err := buffer.Wav(sampleRate, *pcm)
		if err != nil {
			return fmt.Errorf("could not generate .wav file: %v", err)
		}
		return output(".wav", wav)
	}
	retval := 0
	for _, param := range flag.Args() {
		if err := process(param); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

// render pulls the whole input through the live engine path: coordinator,
// compiled chain, master gain.
func render(board pedalhost.Pedalboard, input pedalhost.AudioBuffer, sampleRate int) (pedalhost.AudioBuffer, error) {
	coord := engine.NewCoordinator(sampleRate, blockSize)
	compiled, err := coord.AddPedalboard(board)
	if err != nil {
		return nil, err
	}
	for _, u := range compiled.Units {
		if u.Failed() {
			log.Printf("plugin load failed, %s unit is pass-through: %v", u.Kind(), u.LoadError())
		}
	}
	if err := coord.Play(0); err != nil {
		return nil, err
	}
	eng := engine.NewEngine(coord, engine.NewBroker(), input.Source(), sampleRate, blockSize)
	out := make(pedalhost.AudioBuffer, len(input))
	eng.Process(out)
	return out, nil
}

func normalizePeak(buffer pedalhost.AudioBuffer) {
	if len(buffer) == 0 {
		return
	}
	scratch := make([]float32, len(buffer))
	copy(scratch, buffer)
	vek32.Abs_Inplace(scratch)
	peak := vek32.Max(scratch)
	if peak > 0 {
		vek32.MulNumber_Inplace(buffer, 1/peak)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Pedalhost process: run audio files through a pedalboard offline\nusage: pedalhost-process [flags] audiofile ...\n")
	flag.PrintDefaults()
}
