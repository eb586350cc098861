// Package lending implements the borrow-request notification workflow.
//
// The workflow is deliberately stateless: a request exists only as the email
// sitting in the lender's inbox, and the accept/decline links carry the whole
// request in their query parameters. Nothing is written to the store, links
// never expire server-side (the 7-day note in the email is cosmetic), and a
// replayed click sends the borrower a second notification.
package lending
