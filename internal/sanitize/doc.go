// Package sanitize implements the sensitivity classifier and sanitizer for
// sync payloads.
//
// Detection is rule-based: field names and value shapes are matched against
// a fixed table of PII categories (email, phone, government ID, payment
// card, and a free-text scan for high-confidence identifiers embedded in
// prose). Critical categories (government ID numbers and full payment-card
// numbers) are always removed, even when an emergency context bypasses the
// remaining rules. All other PII is removed unless an explicit, named
// exemption is active for that field in that context.
//
// Sanitization is idempotent: running a payload through Sanitize twice
// yields the same result as running it once. The sanitizer has no side
// effects beyond the returned report.
package sanitize
