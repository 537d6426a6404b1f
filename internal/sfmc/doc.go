// Package sfmc implements a Salesforce Marketing Cloud REST API client
// for Content Builder asset search.
//
// The package covers two concerns:
//
//   - Session: OAuth 2.0 client-credentials authentication against the SFMC
//     auth tenant, with token caching and refresh ahead of expiry
//   - Client: translation of simple and advanced search requests into the
//     Content Builder asset query body, execution of the HTTP calls, and
//     projection of the response into display-friendly results
//
// Errors returned by the package carry a taxonomy the caller can branch on
// with errors.As: AuthError (fix credentials), ValidationError (fix input),
// TransientError (safe to retry), and UpstreamError (SFMC error surfaced
// verbatim).
package sfmc
