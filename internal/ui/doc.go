// Package ui renders console output in the style of cargo's shell.
package ui
