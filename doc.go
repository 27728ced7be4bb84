/*Package afm converts force-field parameters fitted by CRYOFF-style tools
into the inputs a Gromacs simulation needs: tabulated pair potentials and
topology files.

The root package holds the parameter model. A force field is read from an
.off file with OFFRead, which gives an *FF with the per-molecule bonded
terms, the nonbonded terms per unordered atom-type pair, and a charge map.
Table generation lives in the table subpackage, topology-file generation in
the top subpackage and plotting of generated tables in tableplot.

Parameters are stored in the units of the fitting tool (kcal/mol and
Angstrom based) and only converted to Gromacs units (kJ/mol, nm) when
tables or topologies are produced.
*/
package afm
