// Package api is the JSON HTTP boundary of the account service, built on
// echo.
//
// Routes:
//
//	POST   /api/register   {username,email,password}       201 | 400
//	POST   /api/login      {username,password}             200 | 400 | 401
//	POST   /api/logout     {session_token} or header        200 | 400
//	GET    /api/session    guarded                          200 | 401
//	GET    /api/profile    guarded                          200 | 404
//	POST   /api/profile    guarded, partial JSON document   200 | 400
//	PUT    /api/profile    same as POST
//	DELETE /api/profile    guarded                          200 | 400 | 404
//	GET    /healthz        backend report                   200 | 503
//	GET    /metrics        Prometheus text, when configured
//
// Every JSON body is a goAccount.Result. Storage failures map to 503 and
// carry only the generic "<operation> failed" message.
package api
