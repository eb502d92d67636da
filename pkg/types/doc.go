// Package types defines the Deck interface, the socket, decoration and grid
// contracts, and the standard errors for the platforms socket & adjacency core.
//
// A platform is a rectangular, grid-aligned module. Its perimeter carries one
// socket per unit segment; sockets facing a cell occupied by another settled
// platform become Connected, and decorations bound to connected sockets hide.
package types
