/*
Package nixie drives a bank of Nixie tubes through a 3-wire shift-register
interface (data, clock and latch lines), like the Ogi Lumen driver board or
a chain of 74HC595/HV5812 style chips feeding 74141 decoders.

A Buffer holds one digit per tube. A Transport serializes a Snapshot of the
buffer onto a LineDriver: every position is shifted out, last tube first,
then a single latch pulse copies the shift register to the output drivers.
A Loop ties both together: regenerate the buffer from a Source, transfer it,
wait, repeat.

The protocol is open-loop. The driver chip has no feedback line, so the
Transport can only guarantee that it issued the right sequence of line
transitions. A bad connection or a glitch on the wire shows up as a wrong or
frozen display and nothing in this package can detect it. Errors returned by
a LineDriver are host-side I/O failures (a GPIO write that failed) and are
retried as whole frames.

The sim sub-package provides a gate-level model of the driver chip that can
be plugged in as a LineDriver, and the platform sub-packages provide
LineDrivers for real GPIO hardware.
*/
package nixie
