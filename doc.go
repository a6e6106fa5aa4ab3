/*
Package ovbp_client provides a convenient Go interface to the Openergy
building-performance platform REST API.

It wraps raw HTTP operations in a structured API, exposing high-level methods
to manage platform resources like projects, gates, importers, cleaners and
analyses. Each resource is available as a sub-client that supports common CRUD
operations (List, Get, GetById, Create, Update, Delete, etc.), and record-bound
models add lifecycle helpers (Reload, Update, Delete, Activate, Deactivate) on
top of fetched records.

The main entry point is the PlatformRest client, which is initialized using a
PlatformConfig configuration struct. This configuration allows customization of
connection parameters, credentials (username/password or token), SSL behavior,
request timeouts, and request/response hooks.

Project models additionally expose the provisioning workflows of the platform:
CreateInternalGate, CreateExternalGate, CreateImporter and CreateAnalysis each
run the full create/configure/activate/await sequence and report the completed
steps, aborting with AlreadyExistsError when the name is taken and replace was
not requested.
*/
package ovbp_client
