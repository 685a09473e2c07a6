// Package services contains the LLM providers the portfolio assistant can run on and the persistent reply
// cache.
package services

const errLoggerKey = "err"
