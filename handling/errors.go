package handling

import "errors"

// ErrWrongType is returned by Admit when an object's runtime type is not
// accepted by the dispatcher's category.
var ErrWrongType = errors.New("object type not accepted by category")
