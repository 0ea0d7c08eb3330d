// Package ibus hosts the Half-QWERTY engine inside the IBus input method
// framework.
//
// Handler is the portable part: it translates IBus key events into engine
// codes and delivers commits through a Sink. On Linux, Factory and Engine
// export handlers on the session bus, one per input context that IBus
// creates. Component files and the single-instance lock support the
// halfqwerty-ibus command.
package ibus
