// Package timezone pins every time the application produces to a single
// configured location.
//
// The location comes from the APP_TIMEZONE environment variable (an IANA
// name such as "UTC" or "Asia/Jakarta") and is resolved when the package is
// imported. Callers use timezone.Now, timezone.Parse and timezone.Format
// instead of the time package directly so that stored timestamps, booking
// schedules and audit entries all agree on an offset.
package timezone
