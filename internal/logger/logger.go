package logger

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

var (
	timeColor    = color.New(color.FgHiBlack)
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func stamp() string {
	return timeColor.Sprintf("[%s]", time.Now().Format("15:04:05"))
}

// Info log une information générale (bleu)
func Info(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), infoColor.Sprintf(format, args...))
}

// Success log un succès (vert)
func Success(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), successColor.Sprintf("✓ "+format, args...))
}

// Warning log un avertissement (jaune)
func Warning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), warningColor.Sprintf("⚠ "+format, args...))
}

// Error log une erreur (rouge)
func Error(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), errorColor.Sprintf("✗ "+format, args...))
}
