package board

import "LiveBoard/internal/state"

// Commands posted to the board inbox. Inbound network events are posted as
// their protocol payload types.

// Pointer coordinates are logical canvas coordinates.
type PointerDown struct{ X, Y float64 }

type PointerMove struct{ X, Y float64 }

type PointerUp struct{}

type PointerLeave struct{}

// Blur is sent when the window loses focus.
type Blur struct{}

// ClearCanvas wipes the board locally and for every peer.
type ClearCanvas struct{}

type SetColor struct{ Color string }

type SetWidth struct{ Width float64 }

type SetTool struct{ Tool Tool }

// Resize changes the pixel size of the raster surface.
type Resize struct{ Width, Height int }

// Disconnected reports that the transport is gone for good.
type Disconnected struct{ Err error }

type Snapshot struct {
	Reply chan<- View
}

// HistoryRequest asks for a copy of the committed history.
type HistoryRequest struct {
	Reply chan<- []state.Command
}
