// Package udf defines the Handle contract every user-defined function
// implements (native, dynamically loaded, or foreign, running in an
// interpreted-language subprocess), plus the Spec type and Load dispatcher
// that turn a config entry into a constructed Handle.
package udf
