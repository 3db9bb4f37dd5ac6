// Package pedalhost contains the data model of the pedalhost audio server: a
// Set of Pedalboards, each an ordered chain of Pedals, plus the global Mix
// state and the audio buffer / audio device types shared by the engine and
// the tools. The model is pure data; processing lives in the engine package
// and the textual control protocol in the server package.
package pedalhost
