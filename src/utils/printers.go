package utils

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"strings"
	"time"
)

// DEBUG for turning debug logs on/off
const DEBUG = true
const MeMStat = true
const PREFIX = ""
const LONG_PREFIX = "->> "

// HandleError checks the error and throws a panic if the error isn't nil
func HandleError(err error) {
	if err != nil {
		fmt.Printf("|-> Error: %s\n", err.Error())
		panic("=== Panic\n ")
	}
}

type logger struct {
	debug bool
}

func NewLogger(debug bool) Logger {
	return &logger{
		debug: debug,
	}
}

type Logger interface {
	PrintMessage(message string)
	PrintMessages(messages ...interface{})
	PrintFormatted(format string, args ...interface{})
	PrintHeader(header string)
	PrintMemUsage(name string)
	PrintRunningTime(name string, t time.Time)
	PrintSummarizedVector(name string, vec []float64, numElements int)
}

func (l logger) PrintMessage(message string) {
	if l.debug {
		fmt.Print(PREFIX)
		fmt.Printf("%s", message)
		fmt.Println()
	}
}

func (l logger) PrintMessages(messages ...interface{}) {
	if l.debug {
		fmt.Print(PREFIX)
		for _, message := range messages {
			fmt.Print(message)
		}
		fmt.Println()
	}
}

func (l logger) PrintFormatted(format string, args ...interface{}) {
	if l.debug {
		fmt.Print(LONG_PREFIX)
		fmt.Printf(format, args...)
		fmt.Println()
	}
}

// PrintHeader prints a nicely formatted header, auto-wrapping if too long.
func (l logger) PrintHeader(header string) {
	const totalWidth = 80
	const padding = 4

	lines := splitIntoLines(header, totalWidth-(padding*2))

	fmt.Println()
	fmt.Println(strings.Repeat("=", totalWidth))

	for _, line := range lines {
		paddingLeft := (totalWidth - len(line)) / 2
		paddingRight := totalWidth - len(line) - paddingLeft
		fmt.Println(strings.Repeat(" ", paddingLeft) + line + strings.Repeat(" ", paddingRight))
	}

	fmt.Println(strings.Repeat("=", totalWidth))
}

// splitIntoLines splits a string into multiple lines based on max width.
func splitIntoLines(text string, maxWidth int) []string {
	var lines []string
	for len(text) > maxWidth {
		// Find the nearest space before maxWidth
		splitAt := strings.LastIndex(text[:maxWidth], " ")
		if splitAt == -1 {
			splitAt = maxWidth // No spaces found, force break
		}
		lines = append(lines, strings.TrimSpace(text[:splitAt]))
		text = strings.TrimSpace(text[splitAt:])
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

// PrintMemUsage outputs the followings
// Alloc: the bytes of allocated heap objects.
// TotalAlloc: the cumulative bytes allocated for heap objects
// Sys: the total bytes of memory obtained from the OS
// For more info check: https://golang.org/pkg/runtime/#MemStats
func (l logger) PrintMemUsage(name string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mb := 1e6
	alloc := float64(m.Alloc) / mb
	tAlloc := float64(m.TotalAlloc) / mb
	mSys := float64(m.Sys) / mb
	buf := new(strings.Builder)
	width := 15 + 7
	_, err := fmt.Fprintf(buf, "|-> %-*s", width, name)
	HandleError(err)
	buf.WriteByte('\t')
	prettyPrint(buf, alloc, "MB")
	buf.WriteByte('\t')
	prettyPrint(buf, tAlloc, "MB")
	buf.WriteByte('\t')
	prettyPrint(buf, mSys, "MB")
	if MeMStat {
		fmt.Println(buf)
	}
}

func (l logger) PrintRunningTime(name string, t time.Time) {
	fmt.Print(PREFIX)
	fmt.Printf("%s running time: %f (s)\n", name, time.Now().Sub(t).Seconds())
}

// Helps to print the MemStats
func prettyPrint(w io.Writer, x float64, unit string) {
	// Print all numbers with 10 places before the decimal point
	// and small numbers with four sig figs. Field widths are
	// chosen to fit the whole part in 10 places while aligning
	// the decimal point of all fractional formats.
	var format string
	switch y := math.Abs(x); {
	case y == 0 || y >= 999.95:
		format = "%10.3f %s"
	case y >= 99.995:
		format = "%10.3f %s"
	case y >= 9.9995:
		format = "%10.3f %s"
	case y >= 0.99995:
		format = "%10.3f %s"
	case y >= 0.099995:
		format = "%15.4f %s"
	case y >= 0.0099995:
		format = "%16.5f %s"
	case y >= 0.00099995:
		format = "%17.6f %s"
	default:
		format = "%18.7f %s"
	}
	_, err := fmt.Fprintf(w, format, x, unit)
	HandleError(err)
}

// PrintSummarizedVector prints a summarized view of a decoded slot vector
func (l logger) PrintSummarizedVector(name string, vec []float64, numElements int) {
	const summaryLength = 4
	if len(vec) == 0 {
		fmt.Print(PREFIX)
		fmt.Println("Vector is empty!")
		return
	}
	if numElements > len(vec) {
		numElements = len(vec)
	}
	if l.debug {
		fmt.Printf("[%s]: {", name)
		if numElements > 2*summaryLength {
			for i := 0; i < summaryLength; i++ {
				fmt.Printf("%.4f ", vec[i])
			}
			fmt.Printf("... ")
			for i := numElements - summaryLength; i < numElements; i++ {
				fmt.Printf("%.4f ", vec[i])
			}
		} else {
			for i := 0; i < numElements; i++ {
				fmt.Printf("%.4f ", vec[i])
			}
		}
		fmt.Printf("}\n")
	}
}
