// Package ui renders an organize session in the terminal.
//
// Two front ends implement [tasks.Reporter] and [tasks.Prompter]:
//
//   - [Console] prints styled progress lines and asks the continue question with a huh confirm
//     (or a plain "yes/no" line prompt when stdin is not a terminal).
//   - [Model] is a bubbletea program following the Elm Init/Update/View pattern. The session runs in
//     the background and its progress updates and continue questions arrive as [Msg] values over a
//     channel. When the session ends the assignments are shown in a scrollable list.
//
// Keyboard bindings are y/n to answer, ↑/k and ↓/j to scroll the results and q to quit.
package ui
