package environ

// Windows environment variable names are case-insensitive; os.Environ
// reports the search path as Path.
const foldCase = true
