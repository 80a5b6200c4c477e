// Package escpos encodes ESC/POS command sequences for thermal receipt printers.
package escpos

import (
	"bytes"
	"fmt"
)

// Control bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Font selects one of the printer's resident fonts (ESC M n)
type Font byte

const (
	FontA Font = 0
	FontB Font = 1
)

// CutMode selects the paper cut performed by GS V
type CutMode byte

const (
	CutFull    CutMode = 0x00
	CutPartial CutMode = 0x01
)

// feedBeforeCut is the number of line feeds emitted before cutting so the
// last printed line clears the cutter.
const feedBeforeCut = 3

// Command is one named step of a print job
type Command struct {
	Name string
	Data []byte
}

// Job is an ordered list of commands sent to a printer as a unit
type Job struct {
	commands []Command
	err      error
}

// NewJob returns an empty job
func NewJob() *Job {
	return &Job{}
}

func (j *Job) add(name string, data ...byte) *Job {
	j.commands = append(j.commands, Command{Name: name, Data: data})
	return j
}

// Font selects the character font (ESC M n)
func (j *Job) Font(f Font) *Job {
	if f != FontA && f != FontB {
		j.setErr(fmt.Errorf("unknown font %d", f))
		return j
	}
	return j.add("font", ESC, 'M', byte(f))
}

// Size sets the character width and height multipliers (GS ! n).
// Both must be between 1 and 8.
func (j *Job) Size(width, height int) *Job {
	if width < 1 || width > 8 || height < 1 || height > 8 {
		j.setErr(fmt.Errorf("character size %dx%d out of range 1..8", width, height))
		return j
	}
	n := byte((width-1)<<4 | (height - 1))
	return j.add("size", GS, '!', n)
}

// Text writes a line of text followed by a line feed
func (j *Job) Text(s string) *Job {
	data := make([]byte, 0, len(s)+1)
	data = append(data, s...)
	data = append(data, LF)
	return j.add("text", data...)
}

// Cut feeds the paper past the cutter and cuts it (GS V m)
func (j *Job) Cut(mode CutMode) *Job {
	data := bytes.Repeat([]byte{LF}, feedBeforeCut)
	data = append(data, GS, 'V', byte(mode))
	return j.add("cut", data...)
}

func (j *Job) setErr(err error) {
	if j.err == nil {
		j.err = err
	}
}

// Err returns the first error recorded while building the job
func (j *Job) Err() error {
	return j.err
}

// Commands returns the job's steps in transmission order
func (j *Job) Commands() []Command {
	out := make([]Command, len(j.commands))
	copy(out, j.commands)
	return out
}

// Bytes returns the concatenated command stream
func (j *Job) Bytes() []byte {
	var buf bytes.Buffer
	for _, c := range j.commands {
		buf.Write(c.Data)
	}
	return buf.Bytes()
}

// Len returns the total number of bytes in the job
func (j *Job) Len() int {
	n := 0
	for _, c := range j.commands {
		n += len(c.Data)
	}
	return n
}

// HelloWorld returns the fixed test page: font A, double width and height,
// "Hello World", full cut.
func HelloWorld() *Job {
	return NewJob().
		Font(FontA).
		Size(2, 2).
		Text("Hello World").
		Cut(CutFull)
}
