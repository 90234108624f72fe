/*
Package editor contains the session model of the wavetable bank editor.

The editor package defines the Model struct, which holds the live bank, the
selection, the morph cursor, the preview parameters and the undo history.
The Model is owned by a single control goroutine. The audio goroutine runs a
Player, which reads immutable Snapshots that the Model publishes through a
Bridge whenever something audible changes.

The UI does not modify the Model data directly, rather, there are types
Action, Bool, Int and Float which can be used to manipulate the model data in
a controlled way. For example, model.History().Undo() returns an Action that
can be executed with model.History().Undo().Do(), and which advertises with
Enabled() whether there is anything to undo.

The various Actions and other data manipulation methods are grouped based on
their functionalities: model.Selection(), model.Morph(), model.Wave(),
model.Bank(), model.Play() and model.History(). Every change of the bank
made through them becomes exactly one entry in the undo history; use
model.Gesture() to group a longer interaction, like dragging over a waveform,
into one entry.
*/
package editor
