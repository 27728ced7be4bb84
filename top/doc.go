/*
Package top writes Gromacs topology files for a fitted force field. It
works on a user-supplied template: the generated [ nonbond_params ] and
per-molecule bonded sections are spliced into the template at the
matching section headers, and everything else in the template is
preserved verbatim. Quartic bonded terms are written as tabulated bonds
(function type 8) referencing the table numbers assigned by the table
subpackage, so both must be generated from the same force field with
the same molecule selection.
*/
package top
